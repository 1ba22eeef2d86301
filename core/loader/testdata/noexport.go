package main

func Helper() int { return 42 }
