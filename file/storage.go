// Package file provides import record sources for the batch engine:
// a small storage abstraction over local and FTP file systems and a CSV
// reader that turns rows into typed records.
package file

import (
	"fmt"
	"io"
	"net/textproto"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
)

// FileStore read-only access to import files.
type FileStore interface {
	Exists(fileName string) (bool, error)
	Open(fileName string) (io.ReadCloser, error)
}

type LocalFileStore struct {
}

func (fs *LocalFileStore) Exists(fileName string) (bool, error) {
	_, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (fs *LocalFileStore) Open(fileName string) (io.ReadCloser, error) {
	return os.Open(fileName)
}

// FTPFileStore reads import files from an FTP server, one connection per
// call.
type FTPFileStore struct {
	Host        string
	Port        int
	User        string
	Password    string
	ConnTimeout time.Duration
}

func (fs *FTPFileStore) connect() (*ftp.ServerConn, error) {
	c, err := ftp.DialTimeout(fmt.Sprintf("%s:%d", fs.Host, fs.Port), fs.ConnTimeout)
	if err != nil {
		return nil, err
	}
	err = c.Login(fs.User, fs.Password)
	return c, err
}

func (fs *FTPFileStore) Exists(fileName string) (bool, error) {
	c, err := fs.connect()
	if c != nil {
		defer c.Quit()
	}
	if err != nil {
		return false, err
	}
	_, err = c.FileSize(fileName)
	if err == nil {
		return true, nil
	}
	if e, ok := err.(*textproto.Error); ok && e.Code == ftp.StatusFileUnavailable {
		return false, nil
	}
	return false, err
}

func (fs *FTPFileStore) Open(fileName string) (io.ReadCloser, error) {
	c, err := fs.connect()
	if err != nil {
		if c != nil {
			c.Quit()
		}
		return nil, err
	}
	r, err := c.Retr(fileName)
	if err != nil {
		c.Quit()
		return nil, err
	}
	// the connection must stay open until the caller finished reading
	return &ftpFile{response: r, conn: c}, nil
}

type ftpFile struct {
	response *ftp.Response
	conn     *ftp.ServerConn
}

func (f *ftpFile) Read(p []byte) (int, error) {
	return f.response.Read(p)
}

func (f *ftpFile) Close() error {
	err := f.response.Close()
	if e := f.conn.Quit(); err == nil {
		err = e
	}
	return err
}
