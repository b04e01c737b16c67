// Package privdrop gives up the root privileges a screen locker needs only to start: reading
// the shadow database and disabling the OOM killer for itself.
package privdrop
