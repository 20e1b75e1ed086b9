/*
Package transport provides the shared HTTP client used to talk to actuator
endpoints.

A Transport performs plain GET requests with optional headers. Timeouts are
configured independently:

  - ConnectTimeout bounds TCP connection establishment
  - ReadTimeout bounds each read from the connection
  - WriteTimeout bounds each write to the connection

Read and write timeouts apply per operation rather than to the whole
exchange, so a large heap dump may stream for as long as data keeps flowing.

Usage:

	t := transport.New(transport.DefaultConfig())
	resp, err := t.Get(ctx, "http://localhost:8080/actuator/env", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
*/
package transport
