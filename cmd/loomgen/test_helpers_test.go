package main

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

// minimalManifestJSON returns the smallest manifest that passes validation and
// lets generate() produce output. diImport is pinned so assertions do not
// depend on module inference.
func minimalManifestJSON() []byte {
	return []byte(`{
  "package": "wiring",
  "diImport": "github.com/sghaida/loom/di",
  "imports": [
    { "path": "example.com/shop/storage" }
  ],
  "services": [
    { "name": "db", "var": "DB", "type": "*storage.DB", "constructor": "storage.NewDB" }
  ]
}`)
}

// cyclicManifestJSON wires basket and payment eagerly at each other, which
// validation must reject.
func cyclicManifestJSON() []byte {
	return []byte(`{
  "package": "wiring",
  "diImport": "github.com/sghaida/loom/di",
  "imports": [
    { "path": "example.com/shop" }
  ],
  "services": [
    {
      "name": "basket",
      "type": "*shop.BasketService",
      "constructor": "shop.NewBasket",
      "deps": { "payment": { "service": "payment" } }
    },
    {
      "name": "payment",
      "type": "*shop.PaymentService",
      "constructor": "shop.NewPayment",
      "deps": { "basket": { "service": "basket" } }
    }
  ]
}`)
}

// graphManifestJSON is the three-service fixture used by run() tests: a plain
// leaf, an eager edge onto it, and a lazy edge closing a basket/payment loop.
func graphManifestJSON() []byte {
	return []byte(`{
  "package": "wiring",
  "diImport": "github.com/sghaida/loom/di",
  "imports": [
    { "path": "example.com/shop" },
    { "alias": "storage", "path": "example.com/shop/storage" }
  ],
  "services": [
    { "name": "db", "var": "DB", "type": "*storage.DB", "constructor": "storage.NewDB" },
    {
      "name": "basket",
      "type": "*shop.BasketService",
      "constructor": "shop.NewBasket",
      "deps": {
        "db":      { "service": "db" },
        "payment": { "service": "payment", "lazy": true }
      }
    },
    {
      "name": "payment",
      "type": "*shop.PaymentService",
      "constructor": "shop.NewPayment",
      "deps": { "basket": { "service": "basket" } }
    }
  ]
}`)
}

//
// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// requirePanicContains asserts fn panics and the panic message contains wantSub.
func requirePanicContains(t *testing.T, wantSub string, fn func()) {
	t.Helper()

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)

		var message string
		switch v := recovered.(type) {
		case error:
			message = v.Error()
		case string:
			message = v
		default:
			message = fmt.Sprintf("%v", v)
		}
		require.Contains(t, message, wantSub)
	}()

	fn()
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
// It lets us force errors on Write and Close without using a real file.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error {
	return f.closeErr
}

// snapshotWriteFileSeams captures the current global file seams so tests can
// restore them.
func snapshotWriteFileSeams(t *testing.T) (
	origCreate func(string, string) (tempFile, error),
	origRemove func(string) error,
	origChmod func(string, os.FileMode) error,
	origRename func(string, string) error,
) {
	t.Helper()
	return createTempFile, removeFile, chmodFile, renameFile
}

// setWriteFileSeams overrides the global seams used by writeFileAtomic.
// Pass nil for any seam you don't want to override.
func setWriteFileSeams(
	t *testing.T,
	createFn func(string, string) (tempFile, error),
	removeFn func(path string) error,
	chmodFn func(path string, mode os.FileMode) error,
	renameFn func(oldpath, newpath string) error,
) {
	t.Helper()

	if createFn != nil {
		createTempFile = createFn
	}
	if removeFn != nil {
		removeFile = removeFn
	}
	if chmodFn != nil {
		chmodFile = chmodFn
	}
	if renameFn != nil {
		renameFile = renameFn
	}
}
