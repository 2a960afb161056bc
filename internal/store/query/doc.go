// Package query implementa el subconjunto de SQL documental que aceptan los
// containers del store:
//
//	SELECT * FROM c [WHERE <expr>]
//
// <expr> combina comparaciones (=, !=, <>, <, <=, >, >=) con AND, OR, NOT y
// paréntesis. Los operandos son paths (c.email), parámetros nombrados
// (@email), literales (strings, números, true, false, null) y LOWER/UPPER
// sobre un path.
//
// Un Statement se evalúa en memoria contra el JSON decodificado (adapters
// badger y fs) o se compila a SQL sobre jsonb (adapter postgres). Ambos
// caminos comparten semántica: un path inexistente hace falsa la comparación
// y el orden (<, >) solo aplica entre dos números o dos strings.
package query
