
/*
Package middleware provides HTTP middleware components for the application.

The package holds a single middleware, RequestID: it reuses an incoming
X-Request-ID header or generates a UUID, echoes it in the response header,
and stores it in the request context (under RequestIDKey and through
logging.ContextWithRequestID), together with a fresh correlation ID.
GetRequestID reads the ID back from a context.

Usage Example - Request ID:

	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    log.Printf("[%s] Processing request", requestID)
	}

Thread Safety:

RequestID keeps no shared state; each request gets its own derived
context.Context.

See Also:

  - internal/api: the chi router that wraps every route with RequestID
*/
package middleware
