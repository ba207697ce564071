// handlers: HTTP-обработчики локального прокси. /session/* работают через
// типизированный клиент витрины, остальное пересылает Forward.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pribylovaa/go-storefront/internal/storefront"
)

// maxSessionBody — предел тела /session/*: там только e-mail, пароль и имя.
const maxSessionBody = 64 << 10

var errTrailingData = errors.New("trailing data after json object")

type Handlers struct {
	SF *storefront.Client
}

func New(sf *storefront.Client) *Handlers {
	return &Handlers{SF: sf}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeSession читает ровно один JSON-объект без неизвестных полей.
func decodeSession(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}

	return nil
}
