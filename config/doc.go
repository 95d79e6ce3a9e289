// Package config loads treerag settings from a YAML file, an optional .env
// file, and TREERAG_* environment variables, in that order of precedence
// from lowest to highest.
//
// Example file:
//
//	log_level: info
//	database:
//	  path: ./data
//	ai:
//	  host: http://localhost:11434/v1
//	  model: qwen2.5:7b
//	  api_key_env: OPENAI_API_KEY
//	  timeout: 30s
//	traversal:
//	  max_depth: 5
//	  max_branches: 3
//	  node_budget: 1000
//	  policy:
//	    explore_threshold: 0.3
//	    select_threshold: 0.5
//	    high_confidence: 0.7
//	    medium_confidence: 0.4
//	cache:
//	  max_entries: 100
//	  ttl: 1h
package config
