//go:build !race

package memberauth

func passwordHashCost() int {
	return 14
}
