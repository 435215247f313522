package file

import (
	"fmt"
	"io"

	"github.com/weberc2/blockfs/pkg/inode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// File is a positioned handle over an open inode, bridging the inode's
// offset-based I/O to the standard library's Reader/Writer/Seeker. Each
// File owns one inode reference and releases it on Close. Files sharing
// an inode see each other's data but keep independent positions.
type File struct {
	ino       *inode.Inode
	pos       Byte
	denyWrite bool
}

func New(ino *inode.Inode) *File {
	return &File{ino: ino}
}

func (f *File) Inode() *inode.Inode { return f.ino }

func (f *File) Length() Byte { return f.ino.Length() }

func (f *File) Tell() Byte { return f.pos }

func (f *File) Read(b []byte) (int, error) {
	n, err := f.ino.ReadAt(f.pos, b)
	f.pos += n
	if err != nil {
		return int(n), fmt.Errorf("reading file: %w", err)
	}
	if n == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

func (f *File) Write(b []byte) (int, error) {
	n, err := f.ino.WriteAt(f.pos, b)
	f.pos += n
	if err != nil {
		return int(n), fmt.Errorf("writing file: %w", err)
	}
	// the inode reports denied writes as zero bytes without an error;
	// the io.Writer contract wants an error for any short write
	if int(n) < len(b) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}

func (f *File) ReadAt(offset Byte, b []byte) (Byte, error) {
	return f.ino.ReadAt(offset, b)
}

func (f *File) WriteAt(offset Byte, b []byte) (Byte, error) {
	return f.ino.WriteAt(offset, b)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	var relativeTo Byte
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		relativeTo = f.pos
	case io.SeekEnd:
		relativeTo = f.ino.Length()
	default:
		return 0, fmt.Errorf("seeking file: invalid whence `%d`", whence)
	}
	pos := int64(relativeTo) + offset
	if pos < 0 {
		return 0, fmt.Errorf("seeking file: negative position `%d`", pos)
	}
	f.pos = Byte(pos)
	return pos, nil
}

// DenyWrite blocks writes through every handle of this inode until the
// denial lifts. Denying twice through the same File is a no-op.
func (f *File) DenyWrite() {
	if !f.denyWrite {
		f.denyWrite = true
		f.ino.DenyWrite()
	}
}

func (f *File) AllowWrite() {
	if f.denyWrite {
		f.denyWrite = false
		f.ino.AllowWrite()
	}
}

// Close lifts any denial this File holds and drops its inode reference.
func (f *File) Close() error {
	f.AllowWrite()
	if err := f.ino.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	return nil
}

var (
	_ io.Reader = &File{}
	_ io.Writer = &File{}
	_ io.Seeker = &File{}
	_ io.Closer = &File{}
)
