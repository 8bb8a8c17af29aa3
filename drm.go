package mobi

import "strconv"

// EncryptionType is the PalmDOC encryption code. Decryption is not
// supported; the code only tells callers whether record bytes are ciphertext.
type EncryptionType uint16

// Encryption types.
const (
	EncryptionNone          EncryptionType = 0
	EncryptionOldMobipocket EncryptionType = 1
	EncryptionMobipocket    EncryptionType = 2
)

// String returns a human-readable encryption name.
func (e EncryptionType) String() string {
	switch e {
	case EncryptionNone:
		return "none"
	case EncryptionOldMobipocket:
		return "old Mobipocket"
	case EncryptionMobipocket:
		return "Mobipocket"
	default:
		return "unknown (" + strconv.Itoa(int(e)) + ")"
	}
}

// drmSignatures lists EXTH record types whose presence indicates a file
// issued through a DRM storefront, even when the encryption code is zero.
var drmSignatures = []EXTHType{
	EXTHDRMServerID,
	EXTHDRMCommerceID,
	EXTHDRMEbookbaseBookID,
}

// isEncrypted reports whether the text records are ciphertext.
func isEncrypted(h *Headers) bool {
	return h.PalmDoc.Encryption != EncryptionNone
}

// hasDRMBlock reports whether the MOBI header declares a DRM block.
func hasDRMBlock(h *MOBIHeader) bool {
	return h.DRMOffset != 0 && h.DRMOffset != 0xFFFFFFFF && h.DRMCount > 0
}

// hasDRMSignature reports whether the EXTH block carries storefront DRM ids.
func hasDRMSignature(h *EXTHHeader) bool {
	for _, t := range drmSignatures {
		if _, ok := h.Get(t); ok {
			return true
		}
	}
	return false
}
