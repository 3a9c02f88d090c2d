// Package catalog loads 3D and sensor catalog items from Arches and
// SensorThings servers in-process, without a database.
//
//	client, _ := catalog.New(
//	    catalog.WithProxy("https://proxy.example.org/proxy/", "arches.example.org"),
//	    catalog.WithConcurrency(16),
//	)
//	items, summary, err := client.Load(ctx, catalog.Group{
//	    Name:       "churches",
//	    Kind:       catalog.KindBIM,
//	    URL:        "https://arches.example.org/",
//	    GraphID:    "9b591814-c0f2-11e8-9c8c-0242ac120004",
//	    AssetField: "2bd6f5b4-...",
//	    NameField:  "8b8d4c68-...",
//	    PositionField: "8e3c4e0a-...",
//	})
//
// Records that cannot be materialized are skipped and counted in
// Summary.Skipped; only configuration and fetch failures are returned as errors.
package catalog
