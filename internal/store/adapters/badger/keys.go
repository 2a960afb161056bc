package badger

import (
	"bytes"
	"encoding/json"
)

const sep = "\x00"

type containerDef struct {
	Name             string `json:"name"`
	PartitionKeyPath string `json:"partitionKeyPath"`
	Throughput       *int   `json:"throughput,omitempty"`
}

func encodeDef(d containerDef) ([]byte, error) { return json.Marshal(d) }

func decodeDef(raw []byte) (containerDef, error) {
	var d containerDef
	err := json.Unmarshal(raw, &d)
	return d, err
}

func dbKey(database string) []byte {
	return []byte("m" + sep + "db" + sep + database)
}

func containerKey(database, container string) []byte {
	return []byte("m" + sep + "ct" + sep + database + sep + container)
}

// docPrefix es el prefijo común de los documentos de un container.
func docPrefix(database, container string) []byte {
	return []byte("d" + sep + database + sep + container + sep)
}

func docKey(prefix []byte, pk, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(pk)+len(id)+1)
	k = append(k, prefix...)
	k = append(k, pk...)
	k = append(k, sep...)
	return append(k, id...)
}

func partitionPrefix(prefix []byte, pk string) []byte {
	k := make([]byte, 0, len(prefix)+len(pk)+1)
	k = append(k, prefix...)
	k = append(k, pk...)
	return append(k, sep...)
}

// splitDocKey devuelve (pk, id) de una clave de documento.
func splitDocKey(prefix, key []byte) (string, string, bool) {
	rest := bytes.TrimPrefix(key, prefix)
	i := bytes.Index(rest, []byte(sep))
	if i < 0 {
		return "", "", false
	}
	return string(rest[:i]), string(rest[i+1:]), true
}
