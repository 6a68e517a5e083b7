package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
)

type contextKey string

const reqMetaKey = contextKey("r-metadata")

// RequestMetadata carries what the rest of the chain and the upgrade
// handler need to know about one inbound connection attempt. Handshake
// fields arrive as query parameters and are validated inside the socket,
// not here: a client with a bad handshake still gets a readable error
// frame before the close.
type RequestMetadata struct {
	IP        string
	Handshake protocol.Handshake
}

func ReqMetadataFrom(ctx context.Context) (*RequestMetadata, bool) {
	reqMeta, ok := ctx.Value(reqMetaKey).(*RequestMetadata)
	return reqMeta, ok
}

// RequestMetadataMiddleware extracts the peer address and the handshake
// query parameters. This must be the first middleware in the chain.
func RequestMetadataMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta := &RequestMetadata{}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			reqMeta.IP = ip

			q := r.URL.Query()
			reqMeta.Handshake = protocol.Handshake{
				ParticipantID: q.Get("participant_id"),
				OriginAddress: q.Get("origin_address"),
				DisplayName:   q.Get("display_name"),
			}

			ctx := context.WithValue(r.Context(), reqMetaKey, reqMeta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
