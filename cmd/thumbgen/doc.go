// Command thumbgen renders every part in the asset manifest through the
// thumbnail page and saves a JPEG thumbnail per part.
//
// Usage:
//
//	thumbgen [--host localhost:8080] [--dryRun] [--noClean | --forceClean]
//	         [--onlyNew] [--filter text] [--limit n] [--noHeadless] [--browserLogs]
//	thumbgen list [--onlyNew] [--filter text] [--limit n]
//	thumbgen report <run.json>
//
// Settings that rarely change (asset paths, the page contract, polling) live
// in thumbgen.toml; see internal/config.
package main
