// Package hash provides checksum helpers for data integrity.
//
// Snapshot files are protected with CRC32-Castagnoli (CRC32C): hardware
// accelerated on x86 (SSE4.2) and ARM (CRC extension), and the standard
// choice for storage-format checksums (iSCSI, Btrfs, RocksDB).
//
//	checksum := hash.CRC32C(data)
package hash
