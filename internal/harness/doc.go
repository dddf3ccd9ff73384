// Package harness provides conformance testing for fleet loads.
//
// The harness interprets a self-contained scenario, a YAML file carrying
// every instance definition and every input file inline, and compares the
// resulting record graph against a golden snapshot.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	instances:
//	  - id: vac-01
//	    script: vac-01/st.cmd
//	    macros: { SECT: "VAC" }
//	files:
//	  vac-01/st.cmd: |
//	    epicsEnvSet("P", "VAC:01")
//	    dbLoadRecords("pump.db")
//	  vac-01/pump.db: |
//	    record(ai, "$(P):PRES") {
//	    }
//	expect:
//	  records:
//	    - key: vac-01/VAC:01:PRES
//	      type: ai
//	  resolved:
//	    - from: vac-01/VAC:01:PRES
//	      field: INP
//	      to: vac-01/VAC:01:SET
//	  warnings:
//	    - AMBIGUOUS_TARGET
//
// # Deterministic Snapshots
//
// Scenarios read only their inline files, so no path in a snapshot depends
// on the host. Records, instances, and edges are emitted in sorted order,
// and run tokens are excluded, so identical scenarios produce identical
// snapshots across runs.
//
// Golden files live in testdata/golden and are regenerated with:
//
//	go test ./internal/harness -update
package harness
