// Package crlb computes and ranks Cramér–Rao lower bounds on label
// precision.
//
// The CRLB of a label is the theoretical minimum standard deviation any
// unbiased estimator can achieve, obtained from the diagonal of the
// pseudo-inverse of the Fisher information matrix:
//
//	sigma_i >= sqrt( pinv(F)[i][i] )
//
// The Moore–Penrose pseudo-inverse is used instead of a direct inverse
// because regularized Fisher matrices can remain near-singular along
// correlated label directions; the pseudo-inverse stays finite there.
//
// # Usage
//
//	fim, err := fisher.Build(ref, observations)
//	table, err := crlb.Solve(fim, "LVM-1h")
//	ranked, err := crlb.Rank(table, 0.3, crlb.DefaultSort)
package crlb
