package api

import (
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

func handlerOptions(opts []connect.HandlerOption) connect.HandlerOption {
	return connect.WithHandlerOptions(append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)...)
}

func clientOptions(opts []connect.ClientOption) connect.ClientOption {
	return connect.WithClientOptions(append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)...)
}

// route serves the procedures of one service under its path prefix.
func route(service string, handlers map[string]http.Handler) (string, http.Handler) {
	return "/" + service + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
