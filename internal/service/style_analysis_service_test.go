package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylequiz/internal/config"
	"stylequiz/internal/poller"
)

func newStyleService(t *testing.T, handler http.HandlerFunc) *StyleAnalysisService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Webhooks.StyleAnalysis = config.Endpoint{Key: "STYLE_ANALYSIS_URL", URL: srv.URL}
	return NewStyleAnalysisService(cfg, nil)
}

func TestStyleAnalysis_PreservesUploadOrder(t *testing.T) {
	svc := newStyleService(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("data")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		switch header.Filename {
		case "one.jpg":
			w.Write([]byte(`[{"estilo":"Estilo Casual","tags":["jeans"]}]`))
		case "two.jpg":
			w.Write([]byte(`{"estilo":"Estilo Elegante","tags":["blazer","` + string(content) + `"]}`))
		default:
			w.Write([]byte(`{"result":"Estilo Sexy"}`))
		}
	})

	results, err := svc.Analyze(context.Background(), []Photo{
		{FileName: "one.jpg", Data: []byte("1")},
		{FileName: "two.jpg", Data: []byte("22")},
		{FileName: "three.jpg", Data: []byte("333")},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "one.jpg", results[0].FileName)
	assert.Equal(t, "Estilo Casual", results[0].Result)
	assert.Equal(t, []string{"jeans"}, results[0].Tags)

	assert.Equal(t, "two.jpg", results[1].FileName)
	assert.Equal(t, int64(2), results[1].Size)
	assert.Equal(t, []string{"blazer", "22"}, results[1].Tags)

	assert.Equal(t, "Estilo Sexy", results[2].Result)
	assert.Empty(t, results[2].Tags)
}

func TestStyleAnalysis_TransportErrorNamesPhoto(t *testing.T) {
	svc := newStyleService(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, _ := r.FormFile("data")
		if header != nil && header.Filename == "bad.jpg" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"result":"Estilo Casual"}`))
	})

	_, err := svc.Analyze(context.Background(), []Photo{
		{FileName: "ok.jpg"},
		{FileName: "bad.jpg"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error sending photo 2")

	var te *poller.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestStyleAnalysis_Guards(t *testing.T) {
	cfg := testConfig()
	svc := NewStyleAnalysisService(cfg, nil)

	_, err := svc.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPhotos)

	_, err = svc.Analyze(context.Background(), []Photo{{FileName: "a.jpg"}})
	assert.ErrorIs(t, err, poller.ErrNotConfigured)
}

func TestDecodeStyleLabel(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		style string
		tags  []string
		err   error
	}{
		{"array wrapped", `[{"estilo":"A","tags":["x"]}]`, "A", []string{"x"}, nil},
		{"array without tags", `[{"estilo":"A"}]`, "A", []string{}, nil},
		{"flat", `{"estilo":"B","tags":[]}`, "B", []string{}, nil},
		{"result", `{"result":"C"}`, "C", []string{}, nil},
		{"flat wins over result", `{"estilo":"B","tags":["t"],"result":"C"}`, "B", []string{"t"}, nil},
		{"estilo without tags", `{"estilo":"B"}`, "", nil, poller.ErrUnexpectedResponse},
		{"empty array", `[]`, "", nil, poller.ErrUnexpectedResponse},
		{"unknown object", `{"label":"A"}`, "", nil, poller.ErrUnexpectedResponse},
		{"wrong types", `{"estilo":1,"tags":"x"}`, "", nil, poller.ErrUnexpectedResponse},
		{"scalar", `"A"`, "", nil, poller.ErrUnexpectedResponse},
		{"not json", `Estilo Casual`, "", nil, poller.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := decodeStyleLabel([]byte(tt.body))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.style, label.Style)
			assert.Equal(t, tt.tags, label.Tags)
		})
	}
}
