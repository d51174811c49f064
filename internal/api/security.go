package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// requireAPIKey authenticates admin requests by hashing the provided API key,
// looking it up in the repository, and performing a constant-time comparison
// to prevent timing attacks.
func (h *Handler) requireAPIKey(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		hash := sha256.Sum256([]byte(key))
		hexHash := hex.EncodeToString(hash[:])

		info, err := h.apikeys.FindByHash(r.Context(), hexHash)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash[:], storedBytes) != 1 {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
