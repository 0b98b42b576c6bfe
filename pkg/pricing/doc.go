/*
Package pricing turns a publisher cost into a quoted price.

The quote is the publisher cost plus a margin, plus an optional copywriting fee:

	price = round2(cost + margin(code, cost) + rate(code) × words)

The margin depends on the language group of the code and on the cost band:
a flat low margin below 300, a flat mid margin below 500, and a percentage
(20%) at or above 500. The percentage band can produce a smaller absolute margin
than the mid band just below it (499.99 + 107 > 500 + 100); the tables are applied
as-is, without smoothing.

All arithmetic uses exact decimals. Rounding is half-up to two places.
*/
package pricing
