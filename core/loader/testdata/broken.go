package main

func Register( {
