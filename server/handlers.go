package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aqua777/go-treebridge/bridge"
	"github.com/aqua777/go-treebridge/constituent"
	"github.com/aqua777/go-treebridge/reader"
	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/tree"
)

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language string `json:"language"`
	Loaded   bool   `json:"loaded"`
}

type parseRequest struct {
	Text    string `json:"text"`
	Offsets string `json:"offsets"`
}

type sentenceResponse struct {
	Tree      tree.Tree      `json:"tree"`
	Bracketed string         `json:"bracketed"`
	Tokens    []schema.Token `json:"tokens"`
}

type parseResponse struct {
	Language string `json:"language"`
	// Text is the extracted document text the offsets refer to. Set for file uploads.
	Text      string             `json:"text,omitempty"`
	Offsets   schema.OffsetUnit  `json:"offsets"`
	Sentences []sentenceResponse `json:"sentences"`
}

type constituentResponse struct {
	Language string                   `json:"language"`
	Offsets  schema.OffsetUnit        `json:"offsets"`
	Document *constituent.Constituent `json:"document"`
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := bridge.Languages()
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = string(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": codes})
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, loaded := s.session.Language()
	writeJSON(w, http.StatusOK, languageResponse{Language: string(lang), Loaded: loaded})
}

func (s *Server) handleLoadLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.session.LoadLanguage(r.Context(), req.Language); err != nil {
		s.log.Error("load language failed", "language", req.Language, "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	lang, loaded := s.session.Language()
	writeJSON(w, http.StatusOK, languageResponse{Language: string(lang), Loaded: loaded})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, unit, ok := decodeParseRequest(w, r)
	if !ok {
		return
	}
	s.parseAndRespond(w, r, req.Text, unit, false)
}

func (s *Server) handleParseFile(w http.ResponseWriter, r *http.Request) {
	unit, err := schema.ParseOffsetUnit(r.URL.Query().Get("offsets"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	text, err := reader.ReadText(file, header.Filename)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	s.parseAndRespond(w, r, text, unit, true)
}

func (s *Server) handleConstituents(w http.ResponseWriter, r *http.Request) {
	req, unit, ok := decodeParseRequest(w, r)
	if !ok {
		return
	}

	results, lang, err := s.session.ParseWithLanguage(r.Context(), req.Text)
	if err != nil {
		s.log.Error("parse failed", "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	doc, err := constituent.Build(schema.Convert(req.Text, results, unit))
	if err != nil {
		s.log.Error("constituent build failed", "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, constituentResponse{Language: string(lang), Offsets: unit, Document: doc})
}

func decodeParseRequest(w http.ResponseWriter, r *http.Request) (parseRequest, schema.OffsetUnit, bool) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return req, "", false
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return req, "", false
	}
	unit, err := schema.ParseOffsetUnit(req.Offsets)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return req, "", false
	}
	return req, unit, true
}

// parseAndRespond parses text and writes the sentences. withText echoes text back, for
// inputs the client did not send verbatim.
func (s *Server) parseAndRespond(w http.ResponseWriter, r *http.Request, text string, unit schema.OffsetUnit, withText bool) {
	results, lang, err := s.session.ParseWithLanguage(r.Context(), text)
	if err != nil {
		s.log.Error("parse failed", "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	results = schema.Convert(text, results, unit)

	resp := parseResponse{
		Language:  string(lang),
		Offsets:   unit,
		Sentences: make([]sentenceResponse, len(results)),
	}
	if withText {
		resp.Text = text
	}
	for i, res := range results {
		resp.Sentences[i] = sentenceResponse{
			Tree:      res.Tree,
			Bracketed: res.Tree.String(),
			Tokens:    res.Tokens,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps session and reader errors to HTTP status codes. Anything unrecognized
// came from the parser or its loader.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrNoLanguage):
		return http.StatusConflict
	case errors.Is(err, reader.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	}
	var rerr *reader.ReaderError
	if errors.As(err, &rerr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
