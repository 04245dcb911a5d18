// Package timezone pins every calendar computation to the application timezone
// configured through APP_TIMEZONE (an IANA name such as "Asia/Jakarta").
//
// Booking dates arrive as calendar days; converting them with this package keeps
// day boundaries consistent between the API, the database and the exporter.
package timezone
