package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for TypeScriptParser:
// - Imports are reported by module source
// - Interfaces and type aliases become types with their kind
// - Plain function declarations become functions
// - Classes report methods with kind and fields with modifiers
// - Named, default and clause exports are reported
// - TSX: function and arrow components with destructured props
// - Uppercase functions without JSX stay functions

func TestTypeScriptParser_Structure(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "api.ts", `import axios from 'axios';
import { useState } from "react";

export interface User {
    id: number;
}

type Id = string | number;

export function fetchUser(id: Id): Promise<User> {
    return axios.get('/users/' + id);
}

class Store {
    static instance: Store | null = null;
    private items: string[] = [];

    constructor() {}

    get size(): number {
        return this.items.length;
    }

    add(item: string) {
        this.items.push(item);
    }
}

export { Store };
`)

	result, err := NewTypeScriptParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"axios", "react"}, result.Imports)

	require.Len(t, result.Types, 2)
	assert.Equal(t, "User", result.Types[0].Name)
	assert.Equal(t, "interface", result.Types[0].Kind)
	assert.Equal(t, "Id", result.Types[1].Name)
	assert.Equal(t, "type", result.Types[1].Kind)

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "fetchUser", result.Functions[0].Name)
	assert.Equal(t, 10, result.Functions[0].StartLine)
	assert.Equal(t, 12, result.Functions[0].EndLine)

	require.Len(t, result.Classes, 1)
	class := result.Classes[0]
	assert.Equal(t, "Store", class.Name)

	require.Len(t, class.Methods, 3)
	assert.Equal(t, "constructor", class.Methods[0].Kind)
	assert.Equal(t, "size", class.Methods[1].Name)
	assert.Equal(t, "get", class.Methods[1].Kind)
	assert.Equal(t, "add", class.Methods[2].Name)
	assert.Equal(t, "method", class.Methods[2].Kind)

	require.Len(t, class.Properties, 2)
	assert.Equal(t, "instance", class.Properties[0].Name)
	assert.Contains(t, []string(class.Properties[0].Modifiers), "static")
	assert.Equal(t, "items", class.Properties[1].Name)
	assert.Equal(t, "string[]", class.Properties[1].Type)
	assert.Contains(t, []string(class.Properties[1].Modifiers), "private")

	require.Len(t, result.Exports, 3)
	require.NotNil(t, result.Exports[0].Name)
	assert.Equal(t, "User", *result.Exports[0].Name)
	assert.Equal(t, "interface_declaration", result.Exports[0].Type)
	require.NotNil(t, result.Exports[1].Name)
	assert.Equal(t, "fetchUser", *result.Exports[1].Name)
	require.NotNil(t, result.Exports[2].Name)
	assert.Equal(t, "Store", *result.Exports[2].Name)
	assert.Nil(t, result.Exports[2].Code)
}

func TestTypeScriptParser_ReactComponents(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "Card.tsx", `import React from 'react';

export default function Card({ title, body = "" }: CardProps) {
    return <div className="card"><h1>{title}</h1>{body}</div>;
}

const Badge = (props: BadgeProps) => <span>{props.label}</span>;

function Helper() {
    return 42;
}
`)

	result, err := NewTypeScriptParser().Parse(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, result.ReactComponents, 2)
	assert.Equal(t, "Card", result.ReactComponents[0].Name)
	assert.Equal(t, []string{"title", "body"}, result.ReactComponents[0].Props)
	assert.Equal(t, "Badge", result.ReactComponents[1].Name)
	assert.Equal(t, []string{"props"}, result.ReactComponents[1].Props)

	require.Len(t, result.Functions, 1)
	assert.Equal(t, "Helper", result.Functions[0].Name)

	require.Len(t, result.Exports, 1)
	require.NotNil(t, result.Exports[0].Name)
	assert.Equal(t, "default", *result.Exports[0].Name)
}
