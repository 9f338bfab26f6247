package reagent

// collectRequiredFields returns a list of required property names.
func collectRequiredFields(properties map[string]*Parameter) []string {
	var required []string
	for name, prop := range properties {
		if prop.Required {
			required = append(required, name)
		}
	}
	return required
}

// toolSpecToJSONSchema converts a tool spec into a JSON Schema document for
// its argument object.
func toolSpecToJSONSchema(spec *ToolSpec) map[string]any {
	props := make(map[string]any, len(spec.Parameters))
	for name, param := range spec.Parameters {
		props[name] = parameterToJSONSchema(param)
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if required := collectRequiredFields(spec.Parameters); len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// parameterToJSONSchema converts a Parameter to a JSON Schema map.
func parameterToJSONSchema(param *Parameter) map[string]any {
	schema := map[string]any{
		"type": string(param.Type),
	}

	if param.Description != "" {
		schema["description"] = param.Description
	}

	if param.Type == TypeObject && param.Properties != nil {
		props := make(map[string]any)
		for name, prop := range param.Properties {
			props[name] = parameterToJSONSchema(prop)
		}
		schema["properties"] = props
		schema["additionalProperties"] = false

		if required := collectRequiredFields(param.Properties); len(required) > 0 {
			schema["required"] = required
		}
	}

	if param.Type == TypeArray && param.Items != nil {
		schema["items"] = parameterToJSONSchema(param.Items)
	}

	if param.Enum != nil {
		schema["enum"] = param.Enum
	}

	if param.Minimum != nil {
		schema["minimum"] = *param.Minimum
	}
	if param.Maximum != nil {
		schema["maximum"] = *param.Maximum
	}
	if param.MinLength != nil {
		schema["minLength"] = *param.MinLength
	}
	if param.MaxLength != nil {
		schema["maxLength"] = *param.MaxLength
	}
	if param.Pattern != "" {
		schema["pattern"] = param.Pattern
	}
	if param.MinItems != nil {
		schema["minItems"] = *param.MinItems
	}
	if param.MaxItems != nil {
		schema["maxItems"] = *param.MaxItems
	}

	return schema
}
