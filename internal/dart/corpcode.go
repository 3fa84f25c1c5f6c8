package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/esg-suite/dart-sync/internal/model"
)

// corpCodeEntry mirrors one <list> element of the corp-code archive XML.
type corpCodeEntry struct {
	CorpCode    string `xml:"corp_code"`
	CorpName    string `xml:"corp_name"`
	CorpEngName string `xml:"corp_eng_name"`
	StockCode   string `xml:"stock_code"`
	ModifyDate  string `xml:"modify_date"`
}

// ParseCorpCodeArchive reads the corp-code ZIP dump and streams its
// directory entries to the channel. The archive holds a single XML
// document: root <result> with <status>, <message>, and repeated <list>
// elements. Both channels are closed when parsing completes.
func ParseCorpCodeArchive(ctx context.Context, r io.Reader) (<-chan model.CorpCode, <-chan error) {
	outCh := make(chan model.CorpCode, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		// The ZIP reader needs random access, so buffer the archive.
		data, err := io.ReadAll(r)
		if err != nil {
			errCh <- eris.Wrap(err, "corpcode: read archive")
			return
		}

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			errCh <- eris.Wrap(err, "corpcode: open archive")
			return
		}

		entry, err := singleXMLEntry(zr)
		if err != nil {
			errCh <- err
			return
		}

		xmlBody, err := entry.Open()
		if err != nil {
			errCh <- eris.Wrap(err, "corpcode: open xml entry")
			return
		}
		defer xmlBody.Close() //nolint:errcheck

		if err := streamCorpCodes(ctx, xmlBody, outCh); err != nil {
			errCh <- err
		}
	}()

	return outCh, errCh
}

// singleXMLEntry locates the one XML document the archive must contain.
func singleXMLEntry(zr *zip.Reader) (*zip.File, error) {
	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Reject traversal paths even though entries are never written
		// to disk.
		if strings.Contains(f.Name, "..") {
			return nil, eris.Errorf("corpcode: illegal archive path %q", f.Name)
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		return nil, eris.Errorf("corpcode: expected exactly 1 xml entry, got %d", len(files))
	}
	return files[0], nil
}

func streamCorpCodes(ctx context.Context, r io.Reader, outCh chan<- model.CorpCode) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "corpcode: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var status, message string
	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "corpcode: context cancelled")
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrap(err, "corpcode: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "status":
			if err := decoder.DecodeElement(&status, &se); err != nil {
				return eris.Wrap(err, "corpcode: decode status")
			}
			if status != statusOK {
				// message follows status in document order, so it may
				// still be empty here.
				return eris.Wrapf(model.ErrExternalSource,
					"corpcode: archive status=%s message=%s", status, message)
			}
		case "message":
			if err := decoder.DecodeElement(&message, &se); err != nil {
				return eris.Wrap(err, "corpcode: decode message")
			}
		case "list":
			var entry corpCodeEntry
			if err := decoder.DecodeElement(&entry, &se); err != nil {
				return eris.Wrap(err, "corpcode: decode entry")
			}
			code := model.CorpCode{
				CorpCode:    strings.TrimSpace(entry.CorpCode),
				CorpName:    strings.TrimSpace(entry.CorpName),
				CorpNameEng: strings.TrimSpace(entry.CorpEngName),
				StockCode:   strings.TrimSpace(entry.StockCode),
				ModifyDate:  strings.TrimSpace(entry.ModifyDate),
			}
			if code.CorpCode == "" {
				continue
			}
			select {
			case outCh <- code:
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "corpcode: context cancelled")
			}
		}
	}
	return nil
}
