/*
Package actuator talks to the management endpoints of a Spring Boot service.

The Client covers four endpoints below a common base URL:

	/env         selected environment properties, as Variables
	/info        raw application info, used for the build version
	/heapdump    HPROF heap image streamed to a file
	/threaddump  plain text thread dump streamed to a file

Queries against /env and /info are retried on transport failures and on the
transient status codes 408, 425, 429, 500, 502, 503 and 504, three attempts
in total with a fixed wait in between. Dumps are never retried since a
partially written file must not be appended to.

A failed query does not return an error: QueryEnv yields no variables and
QueryInfo yields "{}". Dump failures are returned so the caller decides how to
report them.

Dump files are named

	<kind>-<fileId>-<yyyyMMddTHHmmssSSS>.<ext>

where kind is heapdump (ext hprof) or threaddump (ext txt).
*/
package actuator
