package sync_test

import (
	"context"
	"fmt"
	"log"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/glidekit/glidesync/internal/scripttype"
	"github.com/glidekit/glidesync/internal/snow"
	"github.com/glidekit/glidesync/internal/sync"
)

// This example demonstrates a single-file sync with direction inference.
// It needs a reachable instance, so there is no expected output.
func ExampleNew() {
	client, err := snow.New(snow.Config{
		URL:      "https://dev00001.service-now.com",
		Username: "admin",
		Password: "secret",
	})
	if err != nil {
		log.Fatal(err)
	}

	engine := sync.New(client, osfs.New("/"), scripttype.Default(), nil)

	// The file exists locally, so the engine infers push.
	res, err := engine.Sync(context.Background(), sync.Request{
		Name:     "PaymentUtil",
		Type:     "sys_script_include",
		FilePath: "/work/scripts/PaymentUtil.sys_script_include.js",
	})
	if err != nil {
		log.Fatal(err) // malformed request; nothing was attempted
	}
	fmt.Println(res.Message)
}

// This example demonstrates a directory-wide push.
func ExampleEngine_SyncAll() {
	client, err := snow.New(snow.Config{
		URL:      "https://dev00001.service-now.com",
		Username: "admin",
		Password: "secret",
	})
	if err != nil {
		log.Fatal(err)
	}

	engine := sync.New(client, osfs.New("/"), scripttype.Default(), nil)

	report := engine.SyncAll(context.Background(), sync.BulkOptions{
		Dir:   "/work/scripts",
		Types: []string{"sys_script_include"},
	})
	if report.Err != "" {
		log.Fatal(report.Err)
	}
	fmt.Printf("%d synced, %d failed of %d\n", report.Synced, report.Failed, report.Total)
}
