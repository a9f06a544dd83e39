package bytecode

import (
	"errors"
	"fmt"

	"github.com/cnf/structhash"
	"github.com/fxamacker/cbor/v2"
)

// ImageMagic identifies a CBOR image of an executable.
const ImageMagic = "clasp"

// ImageVersion is the current image format version.
const ImageVersion = 1

// ErrFingerprint is returned by Unmarshal if an image's content does not match
// its recorded fingerprint.
var ErrFingerprint = errors.New("executable fingerprint mismatch")

// image is the on-disk container of an executable.
type image struct {
	Magic       string      `cbor:"1,keyasint"`
	Version     int         `cbor:"2,keyasint"`
	Fingerprint string      `cbor:"3,keyasint"`
	Executable  *Executable `cbor:"4,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Fingerprint returns a content hash of an executable.
func (exe *Executable) Fingerprint() (string, error) {
	return structhash.Hash(*exe, 1)
}

// Marshal serializes an executable to a CBOR image. Encoding is canonical, so
// equal executables produce equal images.
func Marshal(exe *Executable) ([]byte, error) {
	fp, err := exe.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("bytecode: fingerprint: %w", err)
	}
	return cborEncMode.Marshal(&image{
		Magic:       ImageMagic,
		Version:     ImageVersion,
		Fingerprint: fp,
		Executable:  exe,
	})
}

// Unmarshal deserializes a CBOR image. The image's fingerprint is checked and
// every function is verified before the executable is returned.
func Unmarshal(data []byte) (*Executable, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal image: %w", err)
	}
	if img.Magic != ImageMagic {
		return nil, fmt.Errorf("bytecode: not an executable image (magic %q)", img.Magic)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("bytecode: unsupported image version %d", img.Version)
	}
	if img.Executable == nil {
		return nil, errors.New("bytecode: image contains no executable")
	}
	fp, err := img.Executable.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("bytecode: fingerprint: %w", err)
	}
	if fp != img.Fingerprint {
		tracer().Errorf("image fingerprint %s, content hashes to %s", img.Fingerprint, fp)
		return nil, ErrFingerprint
	}
	if err := img.Executable.Verify(); err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	return img.Executable, nil
}
