package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/avactions/internal/router"
	"github.com/vyrodovalexey/avactions/internal/security"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// multipartMemory is the part of a multipart body kept in memory.
const multipartMemory = 8 << 20

// AmbientFromRequest extracts the query, body, uploaded files and headers
// of r. Files are read up to uploadLimit+1 bytes each.
func AmbientFromRequest(r *http.Request, uploadLimit int64) (router.Ambient, error) {
	a := router.Ambient{
		Method:     r.Method,
		Query:      r.URL.Query(),
		Header:     r.Header,
		RemoteAddr: r.RemoteAddr,
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return a, fmt.Errorf("parse multipart form: %w", err)
		}
		a.Body = r.PostForm
		files, err := readFiles(r.MultipartForm, uploadLimit)
		if err != nil {
			return a, err
		}
		a.Files = files
		return a, nil
	}

	if err := r.ParseForm(); err != nil {
		return a, fmt.Errorf("parse form: %w", err)
	}
	a.Body = r.PostForm
	return a, nil
}

func readFiles(form *multipart.Form, limit int64) (map[string]*security.UploadedFile, error) {
	if form == nil || len(form.File) == 0 {
		return nil, nil
	}
	files := make(map[string]*security.UploadedFile, len(form.File))
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", field, err)
		}
		uf, err := security.ReadUploadedFile(field, fh.Filename, fh.Header.Get("Content-Type"), f, limit)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		files[field] = uf
	}
	return files, nil
}

// AmbientFromArgs builds the collections for a command line dispatch. The
// query comes from uri; data is a url-encoded body.
func AmbientFromArgs(method, uri, data string) (router.Ambient, error) {
	if method == "" {
		method = http.MethodGet
	}
	if err := util.ValidateHTTPMethod(method); err != nil || method == "*" {
		return router.Ambient{}, fmt.Errorf("%w: method %q", errInvalidArgs, method)
	}
	a := router.Ambient{
		Method: strings.ToUpper(method),
		Query:  url.Values{},
		Body:   url.Values{},
		Header: http.Header{},
	}
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		raw := uri[i+1:]
		if j := strings.IndexByte(raw, '#'); j >= 0 {
			raw = raw[:j]
		}
		q, err := url.ParseQuery(raw)
		if err != nil {
			return a, fmt.Errorf("%w: query: %v", errInvalidArgs, err)
		}
		a.Query = q
	}
	if data != "" {
		b, err := url.ParseQuery(data)
		if err != nil {
			return a, fmt.Errorf("%w: data: %v", errInvalidArgs, err)
		}
		a.Body = b
	}
	return a, nil
}

var errInvalidArgs = errors.New("invalid arguments")
