package util

import (
	"fmt"
	"net/http"
)

// HTTPError logs the failed request and replies with status and message
func HTTPError(request *http.Request, writer http.ResponseWriter, ctx LogContext, message string, status int) {
	LogAudit(ctx, LogAuditInput{
		Actor:    request.RemoteAddr,
		Action:   request.Method,
		Actee:    request.URL.Path,
		Message:  message,
		Severity: httpSeverity(status),
	})
	http.Error(writer, fmt.Sprintf("%d %s: %s", status, http.StatusText(status), message), status)
}

func httpSeverity(status int) Severity {
	if status >= http.StatusInternalServerError {
		return ERROR
	}
	return WARNING
}
