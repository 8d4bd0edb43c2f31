package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLogger struct {
	warns  []string
	errors []string
}

func (l *countingLogger) Warn(format string, v ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, v...))
}

func (l *countingLogger) Error(format string, v ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, v...))
}

var (
	errMissing = errors.New("missing")
	errBusy    = errors.New("busy")
)

func TestRespondServiceError(t *testing.T) {
	cases := []ErrorCase{
		{errMissing, http.StatusNotFound, "не найдено"},
		{errBusy, http.StatusConflict, "занято"},
	}

	t.Run("first matching case wins", func(t *testing.T) {
		log := &countingLogger{}
		rec := httptest.NewRecorder()

		RespondServiceError(rec, log, "GET /things/{id}", fmt.Errorf("lookup: %w", errBusy), cases...)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"code":409,"message":"занято"}`, rec.Body.String())
		require.Len(t, log.warns, 1)
		assert.Equal(t, "GET /things/{id} - занято: lookup: busy", log.warns[0])
		assert.Empty(t, log.errors)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		log := &countingLogger{}
		rec := httptest.NewRecorder()

		RespondServiceError(rec, log, "GET /things/{id}", errors.New("connection reset"), cases...)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"code":500,"message":"внутренняя ошибка сервера"}`, rec.Body.String())
		assert.Empty(t, log.warns)
		assert.Equal(t, []string{"GET /things/{id} - connection reset"}, log.errors)
	})
}
