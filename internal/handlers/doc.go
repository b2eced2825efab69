// Package handlers implements the HTTP API of the outpost.
//
// Handlers delegate to the services layer and only deal with request binding,
// response formatting and status codes. Handler implements v1.ServerInterface
// and is mounted under /rest/v1 with:
//
//	v1.RegisterHandlers(router, handler)
//
// # Endpoints
//
//	┌────────┬──────────────┬──────────────────────────────────────────────┐
//	│ Method │ Endpoint     │ Description                                  │
//	├────────┼──────────────┼──────────────────────────────────────────────┤
//	│ POST   │ /execute     │ Start a test run                             │
//	│ GET    │ /status      │ Run state, available tests, latest results   │
//	│ GET    │ /runs        │ Runs accepted since startup, newest first    │
//	│ GET    │ /runs/export │ Same as /runs as an XLSX workbook            │
//	│ GET    │ /health      │ Liveness                                     │
//	└────────┴──────────────┴──────────────────────────────────────────────┘
//
// # Execute
//
// Request:
//
//	{
//	    "run_id": 42,
//	    "silo": "narnia",
//	    "testsuite": "smoke",
//	    "testcases": "Login,Logout",
//	    "email_list": "qa@example.com",
//	    "browser": "chrome",
//	    "locale": "en",
//	    "environment": "staging",
//	    "release_day": "2018-10-20"
//	}
//
// An accepted run answers 201 with {"status": true}. Everything else, including
// a run already in progress, answers 500:
//
//	{ "status": false, "message": "Server is running" }
//
// # Status
//
// GET /status?silo=narnia answers 200:
//
//	{
//	    "data": {
//	        "available_test": [{"testsuite": "smoke", "testcases": "Login,Logout"}],
//	        "outpost_status": "Ready",
//	        "test_runs": [],
//	        "name": "outpost-1",
//	        "parameters": null
//	    }
//	}
//
// test_runs is the content of the latest result artifact, or [] when there is
// none yet. parameters is the parameters field of the silo's controls.json.
// When the status cannot be assembled the answer is 500:
//
//	{ "status": false, "outpost_status": "Error", "message": "..." }
//
// # Runs
//
// GET /runs and /runs/export take silo, limit and filter. filter is a journal
// expression (see package filter):
//
//	GET /runs?filter=status%20%3D%20'Error'%20and%20started_at%20%3E%3D%20'2018-10-18'
//
// A malformed limit or filter answers 400 with a JSON body naming the problem.
package handlers
