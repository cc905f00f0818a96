//go:build !linux && !windows

package region

const pageAligned = false

func allocPages(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func freePages([]byte) error {
	return nil
}
