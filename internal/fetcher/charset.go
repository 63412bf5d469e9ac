package fetcher

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode wraps r so that it yields UTF-8 from the named character encoding.
// Names follow the WHATWG encoding labels ("utf-8", "latin1", "windows-1252",
// "utf-16le", ...). A leading byte order mark is always consumed.
func Decode(r io.Reader, charset string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" {
		name = "utf-8"
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "charset: unknown encoding %q", charset)
	}

	var t transform.Transformer
	if enc == unicode.UTF8 {
		t = unicode.UTF8BOM.NewDecoder()
	} else {
		t = unicode.BOMOverride(enc.NewDecoder())
	}

	return transform.NewReader(r, t), nil
}
