/*
Package s3 mirrors dump files to an S3 compatible bucket.

After a heap or thread dump has been written locally, the event adapter can
hand the file to a Mirror. The object key is the file name below an optional
prefix:

	mirror:
	  enabled: true
	  bucket: perf-dumps
	  prefix: afterburner
	  region: eu-west-1
	  endpoint: http://localhost:4566   # LocalStack, MinIO
	  force_path_style: true
	  storage_tier: STANDARD_IA
	  enable_cargoship_optimization: true

	heapdump-run42-20240131T101500123.hprof
	  -> s3://perf-dumps/afterburner/heapdump-run42-20240131T101500123.hprof

# CargoShip

With enable_cargoship_optimization the upload goes through the CargoShip
transporter, which switches to multipart uploads above 32MB with 16MB parts.
Heap dumps of large services are easily several gigabytes, which is where
this pays off. When the transporter fails, the file is rewound and uploaded
once more with a plain PutObject.

# Credentials

access_key_id and secret_access_key (plus an optional session_token) select
static credentials. Without them the default AWS credential chain applies.

Upload errors carry the UPLOAD_FAILED code. The adapter logs them as
warnings; a failing mirror never fails the test run. After
breaker.failure_threshold consecutive failures (default 3) uploads are
skipped for breaker.timeout (default 5m), then a single upload is tried
again:

	mirror:
	  breaker:
	    failure_threshold: 3
	    timeout: 5m
*/
package s3
