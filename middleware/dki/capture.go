package dki

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
)

type captureMode int

const (
	modeUndecided captureMode = iota
	modeBuffer
	modePass
)

// captureWriter segura respostas HTML em memória para reescrita.
// Qualquer outra resposta (ou HTML grande demais) passa direto.
type captureWriter struct {
	w       http.ResponseWriter
	maxBody int64
	// acquire é chamado quando a resposta é elegível; false => passa direto.
	acquire func() bool

	mode   captureMode
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter, maxBody int64, acquire func() bool) *captureWriter {
	return &captureWriter{w: w, maxBody: maxBody, acquire: acquire, status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header { return c.w.Header() }

// Unwrap deixa http.ResponseController chegar ao writer original.
func (c *captureWriter) Unwrap() http.ResponseWriter { return c.w }

func (c *captureWriter) WriteHeader(code int) {
	if c.mode != modeUndecided {
		return
	}
	// 1xx não encerra os headers
	if code >= 100 && code < 200 {
		c.w.WriteHeader(code)
		return
	}
	c.status = code
	c.decide()
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.mode == modeUndecided {
		c.decide()
	}
	if c.mode == modePass {
		return c.w.Write(p)
	}

	if c.maxBody > 0 && int64(c.buf.Len()+len(p)) > c.maxBody {
		if err := c.spill(); err != nil {
			return 0, err
		}
		return c.w.Write(p)
	}
	return c.buf.Write(p)
}

// Flush só repassa quando não estamos bufferizando.
func (c *captureWriter) Flush() {
	if c.mode != modePass {
		return
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *captureWriter) decide() {
	if c.status == http.StatusOK && isRewritable(c.w.Header()) && (c.acquire == nil || c.acquire()) {
		c.mode = modeBuffer
		return
	}
	c.mode = modePass
	c.w.WriteHeader(c.status)
}

// spill desiste da reescrita: manda status, o que já foi bufferizado e segue em modo pass.
func (c *captureWriter) spill() error {
	c.mode = modePass
	c.w.WriteHeader(c.status)
	if c.buf.Len() == 0 {
		return nil
	}
	_, err := c.w.Write(c.buf.Bytes())
	c.buf.Reset()
	return err
}

// buffered devolve o corpo quando a resposta ficou inteira em memória.
func (c *captureWriter) buffered() ([]byte, bool) {
	if c.mode == modeUndecided {
		// handler não escreveu nada: resposta vazia
		c.decide()
	}
	if c.mode != modeBuffer {
		return nil, false
	}
	return c.buf.Bytes(), true
}

func isRewritable(h http.Header) bool {
	if enc := strings.TrimSpace(h.Get("Content-Encoding")); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "text/html"
}
