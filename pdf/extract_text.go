package pdf

import (
	"strings"

	pdfreader "github.com/ledongthuc/pdf"
)

// infoKeys are the document information entries reported by ExtractText.
var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

// TextContent is the text decoded from a document.
type TextContent struct {
	Text  string            `json:"text"`
	Pages int               `json:"pages"`
	Info  map[string]string `json:"info"`
}

// ExtractText decodes the text of every page, joining pages with a newline. Documents
// without text (e.g. scans) yield an empty string.
func ExtractText(doc *Document) (content *TextContent, err error) {
	defer recoverTransform("extract text", &err)

	r, err := doc.inspect()
	if err != nil {
		return nil, err
	}

	pageTexts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)

		// font resource names are page-local
		fonts := make(map[string]*pdfreader.Font)
		for _, name := range p.Fonts() {
			f := p.Font(name)
			fonts[name] = &f
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, transformErr("extract text", err)
		}
		pageTexts = append(pageTexts, strings.TrimSpace(text))
	}

	text := strings.Join(pageTexts, "\n")
	if strings.TrimSpace(text) == "" {
		text = ""
	}

	return &TextContent{
		Text:  text,
		Pages: doc.PageCount(),
		Info:  documentInfo(r),
	}, nil
}

func documentInfo(r *pdfreader.Reader) map[string]string {
	info := make(map[string]string)
	dict := r.Trailer().Key("Info")
	if dict.IsNull() {
		return info
	}
	for _, key := range infoKeys {
		if v := dict.Key(key); v.Kind() == pdfreader.String {
			if s := strings.TrimSpace(v.Text()); s != "" {
				info[key] = s
			}
		}
	}
	return info
}
