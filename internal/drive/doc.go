// Package drive holds the file record shared by the server and the client,
// the view filter of the file list and the pure state transitions applied by
// star, share, trash and restore.
package drive
