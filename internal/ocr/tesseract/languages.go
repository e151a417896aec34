// Package tesseract provides a local Recognizer backed by libtesseract
// through gosseract. It needs the eng and msa traineddata installed and is
// compiled in only with the tesseract build tag:
//
//	go build -tags tesseract
package tesseract

// languageCodes maps BCP-47 hints to tesseract traineddata names.
var languageCodes = map[string]string{
	"en": "eng",
	"ms": "msa",
	"zh": "chi_sim",
	"ta": "tam",
}

// Languages converts language hints to tesseract codes; unknown hints pass
// through unchanged and an empty list means eng.
func Languages(hints []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, h := range hints {
		code, ok := languageCodes[h]
		if !ok {
			code = h
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		out = []string{"eng"}
	}
	return out
}
