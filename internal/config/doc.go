// Package config provides local-first configuration for labsync runs.
//
// Configuration lives in the project's .labsync/ directory:
//
//	.labsync/
//	├── config.json        # run settings (committed to git)
//	└── .gitignore         # keeps reports and logs out of git
//
// A config names a workload preset and optionally overrides parts of it:
//
//	{
//	  "workload": "heavy",
//	  "capacity": 8,
//	  "duration": "10s",
//	  "fairness": "strict-fair",
//	  "log_level": "info",
//	  "theme": "lab",
//	  "consumers": [
//	    {"name": "Analyzer1", "interval": "150ms"}
//	  ]
//	}
//
// The built-in presets are "light" (two clinics, two analyzers, one auditor,
// one supervisor) and "heavy" (five wards flooding two slow analyzers while
// three auditors read the policy). A worker list given in the file replaces
// the preset's list of that kind; capacity and duration override when
// non-zero.
//
// String values may reference environment variables as $VAR or ${VAR}:
//
//	{"workload": "${LABSYNC_WORKLOAD}"}
//
// Validation happens on Load and Set, so a bad capacity, duration, fairness
// mode or worker list is reported before any worker goroutine starts.
//
// Example usage:
//
//	manager := config.NewManager(".")
//	if err := manager.Load(); err != nil {
//		log.Fatal(err)
//	}
//
//	workload, err := manager.Get().Resolve()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(workload.Name, workload.Capacity)
package config
