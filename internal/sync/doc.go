// Package sync implements the synchronization engine between local
// script files and remote ServiceNow records.
//
// # Overview
//
// Each synchronizable file is named <artifact>.<table>.<extension> (see
// the naming package). The engine copies content in one direction at a
// time: push uploads the local body into the record's script field, pull
// downloads the record body into the local file with a metadata header
// prepended. The remote record is the authoritative copy; the local file
// is the working copy kept under version control.
//
// # Architecture
//
//	Working directory                         ServiceNow instance
//	  scripts/
//	    PaymentUtil.sys_script_include.js  ←→  sys_script_include
//	    ValidateOrder.sys_script.js        ←→  sys_script
//	                    ↑
//	                  Engine
//	          (Sync / SyncAll callers:
//	           CLI commands, watch coordinator)
//
// The engine is the only component that touches both the filesystem and
// the remote store. Callers choose the direction or let Sync infer it
// from local file existence.
//
// # Usage
//
//	reg := scripttype.Default()
//	client, err := snow.New(snow.Config{URL: url, Username: user, Password: pass})
//	if err != nil {
//	    return err
//	}
//	engine := sync.New(client, osfs.New("/"), reg, logger)
//
//	res, err := engine.Sync(ctx, sync.Request{
//	    Name:     "PaymentUtil",
//	    Type:     "sys_script_include",
//	    FilePath: "/work/scripts/PaymentUtil.sys_script_include.js",
//	})
//	if err != nil {
//	    return err // malformed request, nothing was attempted
//	}
//	if !res.Success {
//	    fmt.Println(res.Message)
//	}
//
// Directory-wide push:
//
//	report := engine.SyncAll(ctx, sync.BulkOptions{Dir: "/work/scripts"})
//	fmt.Printf("%d synced, %d failed of %d\n", report.Synced, report.Failed, report.Total)
//
// # Error Handling
//
// Sync returns an error only for a malformed request (unknown type,
// invalid direction), detected before any I/O. Everything after that
// (missing records, unreadable files, transport failures) is reported as
// a Result with Success=false, never as an error, so loops over many
// files need no special cases. SyncAll has no error return at all; a
// directory-level failure lands in Report.Err.
//
// # Concurrency
//
// The engine holds no mutable state and may be shared across goroutines.
// Serializing syncs of the same path is the caller's job; the watch
// coordinator does this with its in-flight set.
package sync
