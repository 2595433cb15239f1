package validate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
)

// maxImageSize is the upload ceiling enforced before any bytes are read.
const maxImageSize = 10 * 1024 * 1024

// signatureLength is how many leading bytes the sniffer needs. WebP is
// the widest check: RIFF at [0,4) plus WEBP at [8,12).
const signatureLength = 16

// allowedImageTypes are the declared MIME types accepted for photo
// uploads. image/jpg is not a registered type but is widely emitted.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Asset describes an image file handed in for validation or upload.
// ContentType returns the declared MIME type, or "" when unknown;
// Size returns the declared byte length, or a negative value when
// unknown.
//
// Read capabilities are optional and discovered by type assertion:
// an Asset that also implements io.ReaderAt supports bounded partial
// reads, one that implements io.Reader supports a full read, and one
// that implements neither is metadata-only.
type Asset interface {
	ContentType() string
	Size() int64
}

// readCapability is resolved exactly once at validation entry instead of
// probing the asset at each use site.
type readCapability int

const (
	metadataOnly readCapability = iota
	partiallyReadable
	fullyReadable
)

func resolveReadCapability(asset Asset) readCapability {
	if _, ok := asset.(io.ReaderAt); ok {
		return partiallyReadable
	}
	if _, ok := asset.(io.Reader); ok {
		return fullyReadable
	}
	return metadataOnly
}

// Image validates an image asset for upload: declared MIME type must be
// an allowed image type, declared size must not exceed 10 MiB, and the
// leading bytes must carry a matching image signature.
//
// Only the first 16 bytes are ever read when the asset supports partial
// reads; the full content is materialized only when a plain reader is
// the sole capability. A metadata-only asset passes the byte check
// trivially, and a read that fails for reasons other than a signature
// mismatch is treated as inconclusive and passes. A successful read
// with an unrecognized signature always fails.
func Image(ctx context.Context, asset Asset) error {
	if asset == nil {
		return apierr.New(apierr.MissingInput, "Image file is required")
	}

	if ct := asset.ContentType(); ct != "" && !allowedImageTypes[ct] {
		return apierr.New(apierr.FormatInvalid, "Invalid file type. Only JPEG, PNG, and WebP images are allowed.")
	}

	if size := asset.Size(); size > maxImageSize {
		return apierr.New(apierr.SizeExceeded, "File size too large. Maximum size is 10MB.")
	}

	header, ok := readHeader(ctx, asset)
	if !ok {
		// No usable read capability, or the read itself failed.
		// Inconclusive, not a mismatch.
		return nil
	}

	if !matchesImageSignature(header) {
		return apierr.New(apierr.ContentMismatch, "File content does not match allowed image formats")
	}
	return nil
}

// readHeader returns up to the first 16 bytes of the asset and whether
// the read was conclusive.
func readHeader(ctx context.Context, asset Asset) ([]byte, bool) {
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	buf := make([]byte, signatureLength)
	switch resolveReadCapability(asset) {
	case partiallyReadable:
		n, err := asset.(io.ReaderAt).ReadAt(buf, 0)
		if n == 0 && err != nil {
			return nil, false
		}
		return buf[:n], true
	case fullyReadable:
		// A plain reader has no random access: the whole content is
		// consumed and only the leading bytes are kept. Callers that
		// need the content afterwards must Materialize the asset first.
		r := asset.(io.Reader)
		n, err := io.ReadFull(r, buf)
		if n == 0 && err != nil {
			return nil, false
		}
		io.Copy(io.Discard, r)
		return buf[:n], true
	default:
		return nil, false
	}
}

// matchesImageSignature checks the sniffed header against the JPEG,
// PNG, and WebP magic bytes. A RIFF header without the WEBP identifier
// at [8,12) (an AVI or WAV container, for instance) is rejected.
func matchesImageSignature(header []byte) bool {
	if bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}) {
		return true // JPEG
	}
	if bytes.HasPrefix(header, []byte{0x89, 0x50, 0x4E, 0x47}) {
		return true // PNG
	}
	if bytes.HasPrefix(header, []byte{0x52, 0x49, 0x46, 0x46}) && len(header) >= 12 &&
		bytes.Equal(header[8:12], []byte{0x57, 0x45, 0x42, 0x50}) {
		return true // RIFF + WEBP
	}
	return false
}

// Materialize prepares an asset for validation followed by an upload.
// An asset whose only read capability is io.Reader is drained once into
// a BytesAsset, so the signature sniff and the upload body are not
// fed from the same consumable stream. Assets with random access, and
// metadata-only assets, are returned unchanged.
func Materialize(asset Asset) (Asset, error) {
	if asset == nil {
		return nil, nil
	}
	if resolveReadCapability(asset) != fullyReadable {
		return asset, nil
	}

	// Read one byte past the ceiling so the size check in Image still
	// trips for oversized streams, without buffering them whole.
	data, err := io.ReadAll(io.LimitReader(asset.(io.Reader), maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image content: %w", err)
	}
	return &BytesAsset{Data: data, Type: asset.ContentType()}, nil
}

// BytesAsset is an in-memory asset. It supports partial reads, so the
// validator never touches more than the signature bytes.
type BytesAsset struct {
	Data []byte
	Type string
}

// ContentType returns the declared MIME type.
func (a *BytesAsset) ContentType() string { return a.Type }

// Size returns the byte length of the data.
func (a *BytesAsset) Size() int64 { return int64(len(a.Data)) }

// ReadAt implements io.ReaderAt over the in-memory data.
func (a *BytesAsset) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(a.Data)) {
		return 0, io.EOF
	}
	n := copy(p, a.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Open returns a fresh reader over the full content, for upload bodies.
func (a *BytesAsset) Open() io.Reader { return bytes.NewReader(a.Data) }

// FileAsset wraps an open file as an Asset. *os.File implements
// io.ReaderAt, so validation stays within the signature bytes no matter
// how large the file is.
type FileAsset struct {
	File *os.File
	Type string
}

// ContentType returns the declared MIME type.
func (a *FileAsset) ContentType() string { return a.Type }

// Size returns the file size, or -1 when the file cannot be stat'd.
func (a *FileAsset) Size() int64 {
	info, err := a.File.Stat()
	if err != nil {
		return -1
	}
	return info.Size()
}

// ReadAt implements io.ReaderAt by delegating to the underlying file.
func (a *FileAsset) ReadAt(p []byte, off int64) (int, error) {
	return a.File.ReadAt(p, off)
}
