package middleware

import (
	"net/http"

	"github.com/segmentio/encoding/json"

	"github.com/opcheck-dev/opcheck"
)

// problem is the RFC 7807-shaped JSON body written for rejected requests.
type problem struct {
	Title     string         `json:"title"`
	Status    int            `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	Operation string         `json:"operation,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Issues    []problemIssue `json:"issues,omitempty"`
}

type problemIssue struct {
	Param    string `json:"param,omitempty"`
	Source   string `json:"source,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"`
}

func problemIssues(issues []opcheck.Issue) []problemIssue {
	out := make([]problemIssue, len(issues))
	for i, iss := range issues {
		out[i] = problemIssue{
			Param:    iss.Param,
			Source:   iss.Source,
			Rule:     iss.Rule,
			Message:  iss.Message,
			Path:     iss.Path,
			Severity: iss.Severity.String(),
		}
	}
	return out
}

func writeProblem(w http.ResponseWriter, p problem) {
	buf, err := json.Marshal(p)
	if err != nil {
		http.Error(w, p.Title, p.Status)
		return
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	// The client may already be gone; a failed write changes nothing.
	_, _ = w.Write(buf)
}
