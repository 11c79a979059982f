// Package tableio reads and writes the CSV tables exchanged with the
// external detector, tracker and annotation tools.
//
// Readers validate the header before parsing any row and report structural
// problems as *InputError naming the offending table. Writers emit the
// analytics outputs in a fixed column order.
package tableio
