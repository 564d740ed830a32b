package http

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ReadText drains rc and decodes it with the named IANA character set, UTF-8
// when the name is empty. The stream is closed before returning, also on
// read or decode failure.
func ReadText(rc io.ReadCloser, charset string) (string, error) {
	defer rc.Close()

	var r io.Reader = rc
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, err := ianaindex.IANA.Encoding(charset)
		if err != nil || enc == nil {
			return "", fmt.Errorf("unsupported charset %q", charset)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
