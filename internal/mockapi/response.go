package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/prodiplan/essaygrader/internal/api"
)

// messages are the human-readable texts sent with each error code.
var messages = map[api.ErrCode]string{
	api.CodeInvalidCredentials: "Email atau password salah",
	api.CodeEmailTaken:         "Email sudah terdaftar",
	api.CodeTokenRequired:      "Token autentikasi diperlukan",
	api.CodeTokenInvalid:       "Token autentikasi tidak valid",
	api.CodeValidation:         "Mohon lengkapi semua field dengan benar",
	api.CodeInvalidPayload:     "Format permintaan tidak valid",
	api.CodeNotFound:           "Sumber daya tidak ditemukan",
	api.CodeAnalyzing:          "Jawaban Anda sedang dianalisis",
	api.CodeUnavailable:        "Layanan analisis sedang tidak tersedia",
	api.CodeInternal:           "Terjadi kesalahan pada server",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
	}
}

func success(w http.ResponseWriter, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		fail(w, http.StatusInternalServerError, api.CodeInternal)
		return
	}
	writeJSON(w, status, api.Envelope{Success: true, Data: raw})
}

func fail(w http.ResponseWriter, status int, code api.ErrCode) {
	failWithFields(w, status, code, nil)
}

func failWithFields(w http.ResponseWriter, status int, code api.ErrCode, fields map[string]string) {
	writeJSON(w, status, api.Envelope{
		Success: false,
		Error:   &api.ErrorBody{Code: code, Message: messages[code], Fields: fields},
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(dst)
}
