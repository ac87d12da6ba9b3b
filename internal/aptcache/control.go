package aptcache

import (
	"bufio"
	"io"
	"strings"
)

// paragraph is one deb822 stanza. Field names are lower-cased.
type paragraph map[string]string

// readParagraphs calls fn for every stanza in r. Continuation lines are
// joined to the previous field with a newline.
func readParagraphs(r io.Reader, fn func(paragraph) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	para := paragraph{}
	last := ""
	flush := func() error {
		if len(para) == 0 {
			return nil
		}
		err := fn(para)
		para = paragraph{}
		last = ""
		return err
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if last != "" {
				para[last] += "\n" + strings.TrimSpace(line)
			}
			continue
		}
		if line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		last = strings.ToLower(strings.TrimSpace(key))
		para[last] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}

// stripClearsign returns the signed body of an InRelease file, or data
// unchanged when it is not clearsigned.
func stripClearsign(data string) string {
	const (
		header    = "-----BEGIN PGP SIGNED MESSAGE-----"
		signature = "\n-----BEGIN PGP SIGNATURE-----"
	)
	if !strings.HasPrefix(strings.TrimLeft(data, "\n"), header) {
		return data
	}
	// armour headers end at the first empty line
	_, body, ok := strings.Cut(data, "\n\n")
	if !ok {
		return ""
	}
	if i := strings.Index(body, signature); i >= 0 {
		body = body[:i]
	}
	return body
}
