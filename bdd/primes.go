// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// primeGTE returns the smallest prime number greater than or equal to num.
// Cache and node tables are sized to a prime so that the modulo hashing in
// opcache/notcache and the Go map's own bucket sizing spread keys evenly.
func primeGTE(num int) int {
	if num <= 2 {
		return 2
	}
	if num%2 == 0 {
		num++
	}
	for !isPrime(num) {
		num += 2
	}
	return num
}

func isPrime(num int) bool {
	if num < 2 {
		return false
	}
	if num%2 == 0 {
		return num == 2
	}
	for d := 3; d*d <= num; d += 2 {
		if num%d == 0 {
			return false
		}
	}
	return true
}
