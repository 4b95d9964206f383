/*
Package transform holds the order flattening transform: decoding of the uploaded orders
document into optional-field Order records, and denormalization of those into flat
(order, item) rows.

It is made externally accessible since it's useful when testing storage or encoder
implementations with realistic row data.

Orders without items (empty, null or missing items list) produce no rows at all, rather
than a row with null item fields.
*/
package transform
