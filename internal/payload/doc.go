// Package payload encodes a diagnostic database as the FlatBuffers payload
// carried by the MDD "diagnostic_description" chunk.
//
// The wire layout is described by schemas/diagnostic_description.fbs. Slot
// numbers in slots.go follow the field order of that file, so other readers
// of the format see the same tables. Fields the ir has but the shared layout
// does not are appended behind each table's last shared field; older readers
// skip them and older payloads decode with those fields left zero.
//
// Type-specific values travel in the specific_data union member for the
// param, DOP or coded type they belong to. A value that member cannot hold
// goes to the matching trailing slot instead. Enums the ir keeps as text are
// written as the wire enum when the spelling is known and as a string in a
// trailing *_name slot otherwise.
package payload
