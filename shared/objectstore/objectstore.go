package objectstore

import (
	"io"

	"github.com/cuongbtq/list-import/internal/domain"
)

// UnknownSize marks an object whose length the backend did not report
const UnknownSize int64 = -1

// Object is an opened remote object
type Object struct {
	Body io.ReadCloser
	Size int64
}

// limitedBody fails with domain.ErrObjectTooLarge once more than max bytes have been read
type limitedBody struct {
	body io.ReadCloser
	max  int64
	read int64
}

func newLimitedBody(body io.ReadCloser, max int64) io.ReadCloser {
	if max <= 0 {
		return body
	}
	return &limitedBody{body: body, max: max}
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.read > l.max {
		return 0, domain.ErrObjectTooLarge
	}
	// allow one byte past the limit so an object of exactly max bytes passes
	if remaining := l.max - l.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := l.body.Read(p)
	l.read += int64(n)
	if l.read > l.max {
		return 0, domain.ErrObjectTooLarge
	}
	return n, err
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}
