package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chatlake/chatlake/internal/executor"
	"github.com/chatlake/chatlake/internal/query"
)

// chatMessage is the public-field subset of a message record returned by
// GET /api/v1/chats.
type chatMessage struct {
	MessageID string `json:"message_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	WordCount int    `json:"word_count"`
}

func (s *Server) chats(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filters := query.Filters{
		Date:   params.Get("date"),
		Sender: params.Get("sender"),
		Search: params.Get("search"),
		Limit:  query.DefaultLimit,
	}
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filters.Limit = n
		}
	}

	rows, err := s.runner.Run(r.Context(), query.Build(filters))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, executor.ErrTimeout) {
			status = http.StatusGatewayTimeout
		}
		s.logger.Error("chats query failed", "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	messages := make([]chatMessage, 0, len(rows))
	for _, row := range rows {
		wc, _ := strconv.Atoi(row["word_count"])
		messages = append(messages, chatMessage{
			MessageID: row["message_id"],
			Date:      row["date"],
			Time:      row["time"],
			Sender:    row["sender"],
			Message:   row["message"],
			WordCount: wc,
		})
	}
	writeJSON(w, http.StatusOK, messages)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
